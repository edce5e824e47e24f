package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/dmitrijs2005/livedesk/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubAccounts struct {
	registerErr error
	loginErr    error
}

func (a *stubAccounts) Register(_ context.Context, username, _ string) (*models.User, *services.TokenPair, error) {
	if a.registerErr != nil {
		return nil, nil, a.registerErr
	}
	return &models.User{ID: "u-" + username, UserName: username}, &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}, nil
}

func (a *stubAccounts) Login(_ context.Context, username, password string) (*services.TokenPair, error) {
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	if password != "secret-pw" {
		return nil, common.ErrorUnauthorized
	}
	return &services.TokenPair{AccessToken: "at-" + username, RefreshToken: "rt-" + username}, nil
}

type stubSessions struct {
	mu          sync.Mutex
	loggedOut   []string
	logoutAll   []string
	refreshErr  error
	deadline    bool
	logoutAllFn func(userID string) error
}

func (s *stubSessions) Refresh(ctx context.Context, token string) (*services.TokenPair, error) {
	_, has := ctx.Deadline()
	s.mu.Lock()
	s.deadline = has
	s.mu.Unlock()
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	if token != "rt-1" {
		return nil, common.ErrorUnauthorized
	}
	return &services.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"}, nil
}

func (s *stubSessions) Logout(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubSessions) LogoutAll(_ context.Context, userID string) error {
	s.mu.Lock()
	s.logoutAll = append(s.logoutAll, userID)
	fn := s.logoutAllFn
	s.mu.Unlock()
	if fn != nil {
		return fn(userID)
	}
	return nil
}

func (s *stubSessions) Authenticate(_ context.Context, token string) (string, error) {
	if token == "good-access" {
		return "u1", nil
	}
	return "", common.ErrorUnauthorized
}

type testEnv struct {
	client   *SessionServiceClient
	health   healthpb.HealthClient
	accounts *stubAccounts
	sessions *stubSessions
}

func startServer(t *testing.T) *testEnv {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	accounts := &stubAccounts{}
	sessions := &stubSessions{}
	srv := NewGRPCServer("bufnet", logging.Nop(), accounts, sessions, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after context cancel")
		}
	})

	return &testEnv{
		client:   NewSessionServiceClient(conn),
		health:   healthpb.NewHealthClient(conn),
		accounts: accounts,
		sessions: sessions,
	}
}

func req(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func field(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func TestServer_RegisterAndLogin(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	resp, err := env.client.Register(ctx, req(t, map[string]any{"username": "alice", "password": "secret-pw"}))
	require.NoError(t, err)
	assert.Equal(t, "u-alice", field(resp, "user_id"))
	assert.Equal(t, "at", field(resp, "access_token"))
	assert.Equal(t, "rt", field(resp, "refresh_token"))

	resp, err = env.client.Login(ctx, req(t, map[string]any{"username": "alice", "password": "secret-pw"}))
	require.NoError(t, err)
	assert.Equal(t, "at-alice", field(resp, "access_token"))

	_, err = env.client.Login(ctx, req(t, map[string]any{"username": "alice", "password": "nope"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_ErrorMapping(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{common.ErrorInvalidArgument, codes.InvalidArgument},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrorInternal, codes.Internal},
		{context.DeadlineExceeded, codes.Internal},
	}
	for _, tt := range tests {
		env.accounts.registerErr = tt.err
		_, err := env.client.Register(ctx, req(t, map[string]any{"username": "x"}))
		st, _ := status.FromError(err)
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
		assert.NotContains(t, st.Message(), "deadline", "causes stay server side")
	}
}

func TestServer_RefreshAndLogout(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	resp, err := env.client.Refresh(ctx, req(t, map[string]any{"refresh_token": "rt-1"}))
	require.NoError(t, err)
	assert.Equal(t, "at-2", field(resp, "access_token"))
	assert.Equal(t, "rt-2", field(resp, "refresh_token"))
	assert.True(t, env.sessions.deadline, "handlers run under the query timeout")

	_, err = env.client.Refresh(ctx, req(t, map[string]any{"refresh_token": "stale"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = env.client.Refresh(ctx, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = env.client.Logout(ctx, req(t, map[string]any{"refresh_token": "rt-2"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"rt-2"}, env.sessions.loggedOut)
}

func TestServer_LogoutAllRequiresAccessToken(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	_, err := env.client.LogoutAll(ctx, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer forged")
	_, err = env.client.LogoutAll(bad, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	noScheme := metadata.AppendToOutgoingContext(ctx, "authorization", "good-access")
	_, err = env.client.LogoutAll(noScheme, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	good := metadata.AppendToOutgoingContext(ctx, "authorization", "bearer good-access")
	_, err = env.client.LogoutAll(good, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, env.sessions.logoutAll)

	env.sessions.logoutAllFn = func(string) error { return common.ErrorInternal }
	_, err = env.client.LogoutAll(good, nil)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestServer_Health(t *testing.T) {
	env := startServer(t)

	resp, err := env.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &stubAccounts{}, &stubSessions{}, 0)
	err := srv.Run(context.Background())
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name string
		md   metadata.MD
		want string
	}{
		{"none", nil, ""},
		{"bearer", metadata.Pairs("authorization", "Bearer abc"), "abc"},
		{"case", metadata.Pairs("authorization", "BEARER  abc "), "abc"},
		{"other scheme", metadata.Pairs("authorization", "Basic abc"), ""},
		{"too short", metadata.Pairs("authorization", "Bear"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}
			assert.Equal(t, tt.want, bearerToken(ctx))
		})
	}
}
