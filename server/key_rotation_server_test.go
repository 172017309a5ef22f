package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net"
	"testing"

	"notes-server/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

func publicKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func dial(t *testing.T, store *utils.PublicKeyStore, token string) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer(store, token, zap.NewNop().Sugar())
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func notify(ctx context.Context, conn *grpc.ClientConn, req NotifyKeyRolledRequest) (*NotifyKeyRolledResponse, error) {
	resp := NewResponseMessage()
	if err := conn.Invoke(ctx, NotifyKeyRolledFullName, req.Encode(), resp); err != nil {
		return nil, err
	}
	return ResponseFromMessage(resp), nil
}

func TestNotifyKeyRolled_AddsKey(t *testing.T) {
	store := utils.NewPublicKeyStore()
	conn := dial(t, store, "")

	resp, err := notify(context.Background(), conn, NotifyKeyRolledRequest{
		PreviousKid:         "k0",
		CurrentKid:          "k1",
		CurrentPublicKeyPem: publicKeyPEM(t),
		RolledAt:            "2024-03-01T12:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Public key updated successfully.", resp.Message)

	_, err = store.GetKey("k1")
	assert.NoError(t, err)
}

func TestNotifyKeyRolled_RemovePrevious(t *testing.T) {
	store := utils.NewPublicKeyStore()
	require.NoError(t, store.AddOrUpdateKey("k0", publicKeyPEM(t)))
	conn := dial(t, store, "")

	_, err := notify(context.Background(), conn, NotifyKeyRolledRequest{
		PreviousKid:         "k0",
		CurrentKid:          "k1",
		CurrentPublicKeyPem: publicKeyPEM(t),
		RemovePrevious:      true,
	})
	require.NoError(t, err)

	_, err = store.GetKey("k0")
	assert.Error(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestNotifyKeyRolled_InvalidArguments(t *testing.T) {
	conn := dial(t, utils.NewPublicKeyStore(), "")

	cases := map[string]NotifyKeyRolledRequest{
		"missing kid": {CurrentPublicKeyPem: "x"},
		"missing pem": {CurrentKid: "k1"},
		"bad pem":     {CurrentKid: "k1", CurrentPublicKeyPem: "not a key"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := notify(context.Background(), conn, req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestNotifyKeyRolled_RequiresToken(t *testing.T) {
	store := utils.NewPublicKeyStore()
	conn := dial(t, store, "secret")
	fields := NotifyKeyRolledRequest{
		CurrentKid:          "k1",
		CurrentPublicKeyPem: publicKeyPEM(t),
	}

	_, err := notify(context.Background(), conn, fields)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer wrong")
	_, err = notify(ctx, conn, fields)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx = metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer secret")
	_, err = notify(ctx, conn, fields)
	assert.NoError(t, err)
}

// Bytes laid out by hand the way protoc-generated NotifyKeyRolledRequest
// marshals them.
func TestNotifyKeyRolledRequest_WireFormat(t *testing.T) {
	var wire []byte
	wire = protowire.AppendTag(wire, 1, protowire.BytesType)
	wire = protowire.AppendString(wire, "k0")
	wire = protowire.AppendTag(wire, 2, protowire.BytesType)
	wire = protowire.AppendString(wire, "k1")
	wire = protowire.AppendTag(wire, 3, protowire.BytesType)
	wire = protowire.AppendString(wire, "PEM")
	wire = protowire.AppendTag(wire, 4, protowire.BytesType)
	wire = protowire.AppendString(wire, "2024-03-01T12:00:00Z")

	msg := NewRequestMessage()
	require.NoError(t, proto.Unmarshal(wire, msg))
	assert.Equal(t, &NotifyKeyRolledRequest{
		PreviousKid:         "k0",
		CurrentKid:          "k1",
		CurrentPublicKeyPem: "PEM",
		RolledAt:            "2024-03-01T12:00:00Z",
	}, RequestFromMessage(msg))

	encoded, err := proto.MarshalOptions{Deterministic: true}.Marshal(RequestFromMessage(msg).Encode())
	require.NoError(t, err)
	assert.Equal(t, wire, encoded)
}

func TestNotifyKeyRolledResponse_WireFormat(t *testing.T) {
	var wire []byte
	wire = protowire.AppendTag(wire, 1, protowire.BytesType)
	wire = protowire.AppendString(wire, "ok")

	encoded, err := proto.Marshal((&NotifyKeyRolledResponse{Message: "ok"}).Encode())
	require.NoError(t, err)
	assert.Equal(t, wire, encoded)
}
