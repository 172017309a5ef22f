package server

import (
	"context"

	"notes-server/utils"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	KeyRotationServiceName  = "keyrotation.KeyRotationNotifyService"
	NotifyKeyRolledFullName = "/" + KeyRotationServiceName + "/NotifyKeyRolled"
)

// KeyRotationNotifier is called by the auth server after it rolls its
// signing key. The wire contract is keyrotation.proto.
type KeyRotationNotifier interface {
	NotifyKeyRolled(ctx context.Context, req *NotifyKeyRolledRequest) (*NotifyKeyRolledResponse, error)
}

var KeyRotationServiceDesc = grpc.ServiceDesc{
	ServiceName: KeyRotationServiceName,
	HandlerType: (*KeyRotationNotifier)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NotifyKeyRolled",
			Handler:    notifyKeyRolledHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keyrotation.proto",
}

func notifyKeyRolledHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := NewRequestMessage()
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		resp, err := srv.(KeyRotationNotifier).NotifyKeyRolled(ctx, req.(*NotifyKeyRolledRequest))
		if err != nil {
			return nil, err
		}
		return resp.Encode(), nil
	}
	req := RequestFromMessage(in)
	if interceptor == nil {
		return handler(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: NotifyKeyRolledFullName,
	}
	return interceptor(ctx, req, info, handler)
}

type KeyRotationNotifyServer struct {
	store *utils.PublicKeyStore
	log   *zap.SugaredLogger
}

func NewKeyRotationNotifyServer(store *utils.PublicKeyStore, log *zap.SugaredLogger) *KeyRotationNotifyServer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &KeyRotationNotifyServer{store: store, log: log}
}

func (s *KeyRotationNotifyServer) NotifyKeyRolled(ctx context.Context, req *NotifyKeyRolledRequest) (*NotifyKeyRolledResponse, error) {
	s.log.Infow("received key rotation notification",
		"previous_kid", req.PreviousKid,
		"current_kid", req.CurrentKid,
		"rolled_at", req.RolledAt,
	)

	if req.CurrentKid == "" {
		return nil, status.Error(codes.InvalidArgument, "current_kid is required")
	}
	if req.CurrentPublicKeyPem == "" {
		return nil, status.Error(codes.InvalidArgument, "no public key pem provided")
	}
	if err := s.store.AddOrUpdateKey(req.CurrentKid, req.CurrentPublicKeyPem); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to add/update key in store: %v", err)
	}

	// Previous keys stay valid by default so tokens already issued keep working.
	if req.RemovePrevious && req.PreviousKid != "" && req.PreviousKid != req.CurrentKid {
		s.store.RemoveKey(req.PreviousKid)
	}

	return &NotifyKeyRolledResponse{Message: "Public key updated successfully."}, nil
}
