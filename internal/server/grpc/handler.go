package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request and response field names.
const (
	fieldUsername     = "username"
	fieldPassword     = "password"
	fieldUserID       = "user_id"
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
)

type handler struct {
	s *GRPCServer
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func tokenPairResponse(p *services.TokenPair, extra map[string]*structpb.Value) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldAccessToken:  structpb.NewStringValue(p.AccessToken),
		fieldRefreshToken: structpb.NewStringValue(p.RefreshToken),
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &structpb.Struct{Fields: fields}
}

// toStatus maps service errors to gRPC status codes. Causes never leak to
// the client.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, "invalid argument")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func (h *handler) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username := stringField(req, fieldUsername)

	user, pair, err := h.s.accounts.Register(ctx, username, stringField(req, fieldPassword))
	if err != nil {
		h.s.logger.Info(ctx, "Registration failed", "username", username, "error", err)
		return nil, toStatus(err)
	}

	h.s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return tokenPairResponse(pair, map[string]*structpb.Value{
		fieldUserID: structpb.NewStringValue(user.ID),
	}), nil
}

func (h *handler) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pair, err := h.s.accounts.Login(ctx, stringField(req, fieldUsername), stringField(req, fieldPassword))
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairResponse(pair, nil), nil
}

func (h *handler) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pair, err := h.s.sessions.Refresh(ctx, stringField(req, fieldRefreshToken))
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairResponse(pair, nil), nil
}

func (h *handler) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := h.s.sessions.Logout(ctx, stringField(req, fieldRefreshToken)); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (h *handler) LogoutAll(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	if err := h.s.sessions.LogoutAll(ctx, userID); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}
