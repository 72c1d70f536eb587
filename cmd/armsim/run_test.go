package main

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/armsim/pkg/arm"
	"github.com/gwillem/armsim/pkg/control"
	"github.com/gwillem/armsim/pkg/program"
	"github.com/gwillem/armsim/pkg/robot"
)

func TestRunHeadless_ReturnsStartError(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := control.NewController(control.Config{Logger: logger})
	go ctrl.Start(ctx)

	bad := program.Program{Actions: []program.Step{{Action: program.Up, Value: -1}}}
	err := runHeadless(ctx, ctrl, bad)

	require.Error(t, err)
	assert.Equal(t, program.ErrNegativeValue, errors.Cause(err))
}

func TestOpenRig_Unconfigured(t *testing.T) {
	cfg := &robot.Config{}

	_, err := openRig(context.Background(), cfg, arm.DefaultGeometry())
	assert.Error(t, err)
}
