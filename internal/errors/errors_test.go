package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aequall/aequall-api/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     errors.CodeNotFound,
			message:  "actor not found",
			expected: "NOT_FOUND: actor not found",
		},
		{
			name:     "invalid argument error",
			code:     errors.CodeInvalidArgument,
			message:  "invalid input",
			expected: "INVALID_ARGUMENT: invalid input",
		},
		{
			name:     "failed precondition error",
			code:     errors.CodeFailedPrecondition,
			message:  "movement already used this turn",
			expected: "FAILED_PRECONDITION: movement already used this turn",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Assert().Equal(tc.expected, err.Error())
			s.Assert().Equal(tc.code, err.Code)
			s.Assert().Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestErrorWithMeta() {
	err := errors.NotFound("actor not found").
		WithMeta("actor_id", "pc-alys").
		WithMeta("combat_id", "combat-1")

	s.Assert().Equal("pc-alys", err.Meta["actor_id"])
	s.Assert().Equal("combat-1", err.Meta["combat_id"])
}

func (s *ErrorsTestSuite) TestWrap() {
	baseErr := fmt.Errorf("connection refused")
	wrapped := errors.Wrap(baseErr, "failed to load actor")

	s.Assert().Equal(errors.CodeInternal, wrapped.Code)
	s.Assert().Equal("failed to load actor", wrapped.Message)
	s.Assert().Equal(baseErr, wrapped.Unwrap())
}

func (s *ErrorsTestSuite) TestWrapPreservesCode() {
	baseErr := errors.NotFound("record not found")
	wrapped := errors.Wrap(baseErr, "actor not found")

	s.Assert().Equal(errors.CodeNotFound, wrapped.Code)
	s.Assert().Equal("actor not found", wrapped.Message)
	s.Assert().Equal(baseErr, wrapped.Unwrap())
	s.Assert().True(errors.IsNotFound(wrapped))
}

func (s *ErrorsTestSuite) TestWrapNil() {
	s.Assert().Nil(errors.Wrap(nil, "should be nil"))
}

func (s *ErrorsTestSuite) TestConstructorFunctions() {
	testCases := []struct {
		name        string
		constructor func() *errors.Error
		code        errors.Code
	}{
		{"NotFound", func() *errors.Error { return errors.NotFound("test") }, errors.CodeNotFound},
		{"InvalidArgument", func() *errors.Error { return errors.InvalidArgument("test") }, errors.CodeInvalidArgument},
		{"AlreadyExists", func() *errors.Error { return errors.AlreadyExists("test") }, errors.CodeAlreadyExists},
		{"PermissionDenied", func() *errors.Error { return errors.PermissionDenied("test") }, errors.CodePermissionDenied},
		{"FailedPrecondition", func() *errors.Error { return errors.FailedPrecondition("test") }, errors.CodeFailedPrecondition},
		{"Aborted", func() *errors.Error { return errors.Aborted("test") }, errors.CodeAborted},
		{"Internal", func() *errors.Error { return errors.Internal("test") }, errors.CodeInternal},
		{"Unavailable", func() *errors.Error { return errors.Unavailable("test") }, errors.CodeUnavailable},
		{"Unimplemented", func() *errors.Error { return errors.Unimplemented("test") }, errors.CodeUnimplemented},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := tc.constructor()
			s.Assert().Equal(tc.code, err.Code)
		})
	}
}

func (s *ErrorsTestSuite) TestPredicates() {
	s.Assert().True(errors.IsNotFound(errors.NotFound("x")))
	s.Assert().True(errors.IsInvalidArgument(errors.InvalidArgument("x")))
	s.Assert().True(errors.IsPermissionDenied(errors.PermissionDenied("x")))
	s.Assert().True(errors.IsFailedPrecondition(errors.FailedPrecondition("x")))
	s.Assert().True(errors.IsAborted(errors.Aborted("x")))

	// Plain errors default to internal
	s.Assert().True(errors.IsInternal(fmt.Errorf("plain")))
	s.Assert().False(errors.IsNotFound(fmt.Errorf("plain")))
	s.Assert().False(errors.IsNotFound(nil))
}

func (s *ErrorsTestSuite) TestGetCodeAndMessage() {
	s.Assert().Equal(errors.CodeOK, errors.GetCode(nil))
	s.Assert().Equal(errors.CodeNotFound, errors.GetCode(errors.NotFound("gone")))
	s.Assert().Equal("gone", errors.GetMessage(errors.NotFound("gone")))
	s.Assert().Equal("", errors.GetMessage(nil))
}

func (s *ErrorsTestSuite) TestToGRPCError() {
	testCases := []struct {
		name     string
		err      error
		expected codes.Code
	}{
		{"nil", nil, codes.OK},
		{"not found", errors.NotFound("x"), codes.NotFound},
		{"invalid argument", errors.InvalidArgument("x"), codes.InvalidArgument},
		{"failed precondition", errors.FailedPrecondition("x"), codes.FailedPrecondition},
		{"permission denied", errors.PermissionDenied("x"), codes.PermissionDenied},
		{"aborted", errors.Aborted("x"), codes.Aborted},
		{"plain error", fmt.Errorf("boom"), codes.Internal},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			grpcErr := errors.ToGRPCError(tc.err)
			if tc.err == nil {
				s.Assert().Nil(grpcErr)
				return
			}
			st, ok := status.FromError(grpcErr)
			s.Require().True(ok)
			s.Assert().Equal(tc.expected, st.Code())
		})
	}
}
