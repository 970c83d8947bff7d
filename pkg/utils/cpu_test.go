package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUUsageRange(t *testing.T) {
	usage, err := CPUUsage(50 * time.Millisecond)
	if err != nil {
		t.Skipf("cpu stats unavailable: %v", err)
	}
	assert.GreaterOrEqual(t, usage, 0.0)
	assert.LessOrEqual(t, usage, 100.0)

	ok, _ := CheckCPUUsage(100)
	assert.True(t, ok)
}

type validated struct {
	Name string `validate:"required"`
	Port int    `validate:"gte=1,lte=65535"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(context.Background(), &validated{Name: "a", Port: 80}))
	assert.Error(t, ValidateStruct(context.Background(), &validated{Port: 80}))
	assert.Error(t, ValidateStruct(context.Background(), &validated{Name: "a", Port: 0}))
}
