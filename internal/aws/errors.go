package aws

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// familyError converts a fetch failure into a classified family-level
// error for the region result. The code is the AWS error code when one is
// available, so access-denied and region-disabled failures stay
// distinguishable downstream.
func familyError(family model.Family, err error) model.FamilyError {
	fe := model.FamilyError{
		Family:  family,
		Message: err.Error(),
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fe.Code = apiErr.ErrorCode()
		fe.Message = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fe
}
