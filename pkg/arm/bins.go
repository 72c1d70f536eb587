package arm

// Object identifies a colored object by its color name.
type Object string

// Colors of the objects placed on the floor at startup.
const (
	Red     Object = "red"
	Green   Object = "green"
	Brown   Object = "brown"
	Magenta Object = "magenta"
)

// Bin is a stack of objects; the last element is the topmost one.
type Bin []Object

// Top returns the topmost object.
func (b Bin) Top() (Object, bool) {
	if len(b) == 0 {
		return "", false
	}
	return b[len(b)-1], true
}

// ObjectBar holds one bin per rail position.
type ObjectBar []Bin

// DefaultObjectBar returns the initial floor layout.
func DefaultObjectBar() ObjectBar {
	return ObjectBar{
		{},
		{Red},
		{Green},
		{Brown},
		{Magenta},
	}
}

// Clone returns a deep copy of the bar.
func (b ObjectBar) Clone() ObjectBar {
	out := make(ObjectBar, len(b))
	for i, bin := range b {
		out[i] = append(Bin{}, bin...)
	}
	return out
}

// Total counts the objects in all bins.
func (b ObjectBar) Total() int {
	n := 0
	for _, bin := range b {
		n += len(bin)
	}
	return n
}

// pop removes the topmost object of bin i. The bar is modified in place.
func (b ObjectBar) pop(i int) (Object, bool) {
	obj, ok := b[i].Top()
	if !ok {
		return "", false
	}
	b[i] = b[i][:len(b[i])-1]
	return obj, true
}

func (b ObjectBar) push(i int, obj Object) {
	b[i] = append(b[i], obj)
}
