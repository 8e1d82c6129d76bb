package common_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
)

type stageFilter struct {
	BatchID   string `validate:"required"`
	StageCode string `validate:"omitempty,stage_code"`
}

func TestValidateRequest_StageCodeRule(t *testing.T) {
	tests := []struct {
		name    string
		request stageFilter
		wantErr bool
	}{
		{name: "canonical code", request: stageFilter{BatchID: "b", StageCode: "blackout"}},
		{name: "no code", request: stageFilter{BatchID: "b"}},
		{name: "unknown code", request: stageFilter{BatchID: "b", StageCode: "flowering"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := common.ValidateRequest(&tt.request)

			// Assert
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var invalid *common.ErrInvalidRequest
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, []string{"StageCode failed stage_code"}, invalid.Problems)
		})
	}
}

func TestValidator_IsShared(t *testing.T) {
	assert.Same(t, common.Validator(), common.Validator())
}
