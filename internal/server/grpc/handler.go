package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Signup(ctx context.Context, req *pb.SignupRequest) (*pb.SignupResponse, error) {

	s.logger.Info(ctx, "Registration request")

	err := s.users.Register(ctx, req.Name, req.Email, req.Password)
	s.metrics.Record(metrics.OpSignup, err)

	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, status.Error(codes.AlreadyExists, "Email already exists")
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error(ctx, "signup failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Info(ctx, "Registered", "email", req.Email)
	return &pb.SignupResponse{Success: true, Message: "Signup successful!"}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {

	token, err := s.users.Authenticate(ctx, req.Email, req.Password)
	s.metrics.Record(metrics.OpLogin, err)

	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			return nil, status.Error(codes.Unauthenticated, "Invalid email or password")
		}
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &pb.LoginResponse{
		Success:   true,
		Message:   "Login successful!",
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt().Unix(),
	}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *pb.MeRequest) (*pb.MeResponse, error) {

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		s.metrics.Record(metrics.OpMe, common.ErrInvalidToken)
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	s.metrics.Record(metrics.OpMe, nil)

	resp := &pb.MeResponse{Email: claims.Email, Name: claims.Name}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return resp, nil
}
