package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := s.users.Register(ctx, stringField(req, "name"), stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (s *GRPCServer) CreateUserToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := s.users.Login(ctx, stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{"accessToken": token})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	subject, ok := subjectFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return newStruct(map[string]any{"email": subject})
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.PermissionDenied, "invalid credentials")
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, "invalid argument")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
