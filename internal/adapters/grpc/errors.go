package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// toStatus maps an application error onto a gRPC status
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeFor(err), err.Error())
}

func codeFor(err error) codes.Code {
	var (
		cropNotFound    *crop.ErrCropNotFound
		batchNotFound   *crop.ErrBatchNotFound
		taskNotFound    *scheduling.ErrTaskNotFound
		planNotFound    *planning.ErrPlanNotFound
		recipeNotFound  *recipe.ErrRecipeNotFound
		seedLotDepleted *recipe.ErrSeedLotDepleted
		taskTransition  *scheduling.ErrInvalidTaskTransition
		planTransition  *planning.ErrInvalidPlanTransition
		planLocked      *planning.ErrPlanLocked
		versionConflict *crop.ErrVersionConflict
		lockTimeout     *lifecycle.ErrLockTimeout
		invalidRequest  *common.ErrInvalidRequest
		unknownStage    *stage.ErrUnknownStage
		emptyCropSet    *lifecycle.ErrEmptyCropSet
		paramMissing    *recipe.ErrParameterMissing
	)

	switch {
	case errors.As(err, &cropNotFound),
		errors.As(err, &batchNotFound),
		errors.As(err, &taskNotFound),
		errors.As(err, &planNotFound),
		errors.As(err, &recipeNotFound):
		return codes.NotFound
	case errors.As(err, &seedLotDepleted),
		errors.As(err, &taskTransition),
		errors.As(err, &planTransition),
		errors.As(err, &planLocked),
		errors.As(err, &paramMissing):
		return codes.FailedPrecondition
	case errors.As(err, &versionConflict):
		return codes.Aborted
	case errors.As(err, &lockTimeout):
		return codes.Unavailable
	case errors.As(err, &invalidRequest),
		errors.As(err, &unknownStage),
		errors.As(err, &emptyCropSet):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}
