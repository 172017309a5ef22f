package server

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"notes-server/utils"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// NewGRPCServer builds the internal gRPC server hosting key rotation.
func NewGRPCServer(store *utils.PublicKeyStore, rotationToken string, log *zap.SugaredLogger) *grpc.Server {
	if rotationToken == "" {
		log.Warn("key rotation endpoint is not protected by a token")
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggerUnaryInterceptor(log),
		AuthUnaryInterceptor(rotationToken),
	))
	s.RegisterService(&KeyRotationServiceDesc, NewKeyRotationNotifyServer(store, log))
	return s
}

// LoggerUnaryInterceptor logs the method, outcome and duration of each call.
func LoggerUnaryInterceptor(log *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			st := status.Convert(err)
			log.Warnw("grpc request failed", "method", info.FullMethod, "code", st.Code().String(), "error", st.Message(), "duration", time.Since(start))
		} else {
			log.Infow("grpc request", "method", info.FullMethod, "duration", time.Since(start))
		}
		return resp, err
	}
}

// AuthUnaryInterceptor requires "authorization: Bearer <token>" metadata
// when token is non-empty.
func AuthUnaryInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if token == "" {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata not provided")
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization header not provided")
		}
		if !strings.HasPrefix(values[0], "Bearer ") {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}
		got := strings.TrimPrefix(values[0], "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(ctx, req)
	}
}
