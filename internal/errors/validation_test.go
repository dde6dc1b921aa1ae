package errors_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/aequall/aequall-api/internal/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestValidationError() {
	ve := errors.NewValidationError()
	ve.AddFieldError("ActorRepo", "is required")
	ve.AddFieldError("StakeGold", "must be positive")

	s.Assert().True(ve.HasErrors())
	s.Assert().Contains(ve.Error(), "ActorRepo: is required")
	s.Assert().Contains(ve.Error(), "StakeGold: must be positive")

	err := ve.ToError()
	s.Assert().Equal(errors.CodeInvalidArgument, err.Code)
	s.Assert().NotNil(err.Meta["validation_errors"])
}

func (s *ValidationTestSuite) TestValidationBuilder() {
	vb := errors.NewValidationBuilder()
	vb.Field("Kind", "must be buy or sell").
		Fieldf("DieIndex", "must be between %d and %d", 0, 3).
		RequiredField("ShopID").
		InvalidField("Delta", "must be non-zero")

	err := vb.Build()
	s.Require().NotNil(err)
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *ValidationTestSuite) TestValidationBuilderNoErrors() {
	vb := errors.NewValidationBuilder()
	s.Assert().Nil(vb.Build())
}

func (s *ValidationTestSuite) TestEmptyValidationErrorToError() {
	ve := errors.NewValidationError()
	s.Assert().False(ve.HasErrors())
	s.Assert().Nil(ve.ToError())
}
