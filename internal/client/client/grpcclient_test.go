package client

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * Fake connection
 *************/

type fakeConn struct {
	// inputs captured
	lastMethod       string
	lastRequest      map[string]any
	lastSessionToken string
	calls            int

	// outputs preset, keyed by method name without the service prefix
	responses map[string]map[string]any
	errs      map[string]error
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	f.calls++
	f.lastMethod = method
	f.lastRequest = args.(*structpb.Struct).AsMap()
	f.lastSessionToken = ""
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if toks := md.Get(common.SessionTokenHeaderName); len(toks) > 0 {
			f.lastSessionToken = toks[0]
		}
	}

	name := strings.TrimPrefix(strings.TrimPrefix(method, authService), marketingService)
	if err := f.errs[name]; err != nil {
		return err
	}
	resp, err := structpb.NewStruct(f.responses[name])
	if err != nil {
		return err
	}
	proto.Merge(reply.(proto.Message), resp)
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streams are not supported")
}

func newTestClient(f *fakeConn) *GRPCClient {
	return &GRPCClient{conn: f}
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Equal(t, common.ErrInvalidToken, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, common.ErrIncorrectPassword, c.mapError(status.Error(codes.PermissionDenied, "x")))
	require.Equal(t, common.ErrUnknownAccount, c.mapError(status.Error(codes.NotFound, "x")))
	require.Equal(t, common.ErrAccountExists, c.mapError(status.Error(codes.AlreadyExists, "x")))
	require.Equal(t, common.ErrThrottled, c.mapError(status.Error(codes.ResourceExhausted, "x")))
	require.Equal(t, common.ErrUserCanceled, c.mapError(status.Error(codes.Canceled, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))

	err := c.mapError(status.Error(codes.InvalidArgument, "bad email"))
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	require.ErrorContains(t, err, "bad email")

	e := errors.New("plain")
	require.ErrorContains(t, c.mapError(e), "rpc error:")
	require.NoError(t, c.mapError(nil))
}

func TestWithSessionToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.SessionTokenHeaderName, "old", "other", "x")
	ctx = withSessionToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"new"}, md.Get(common.SessionTokenHeaderName))
	require.Equal(t, []string{"x"}, md.Get("other"))
}

/*************
 * Session operations
 *************/

func TestSignIn_SendsCredentialsAndParsesSession(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{
		"SignIn": {
			"uid":                "u1",
			"sessionToken":       "st",
			"keyFetchToken":      "kft",
			"verified":           true,
			"verificationMethod": "email",
		},
	}}
	c := newTestClient(f)

	sess, err := c.SignIn(context.Background(), SignInRequest{
		Email:  "a@b.c",
		AuthPW: "pw",
		Keys:   true,
		Reason: "signin",
	})
	require.NoError(t, err)
	require.Equal(t, authService+"SignIn", f.lastMethod)
	require.Equal(t, "a@b.c", f.lastRequest["email"])
	require.Equal(t, "pw", f.lastRequest["authPW"])
	require.Equal(t, true, f.lastRequest["keys"])
	require.Equal(t, "signin", f.lastRequest["reason"])
	require.NotContains(t, f.lastRequest, "unblockCode")
	require.Empty(t, f.lastSessionToken)

	require.Equal(t, &Session{
		UID:                "u1",
		SessionToken:       "st",
		KeyFetchToken:      "kft",
		Verified:           true,
		VerificationMethod: "email",
	}, sess)
}

func TestSignIn_MissingUIDIsBadResponse(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{"SignIn": {"sessionToken": "st"}}}
	_, err := newTestClient(f).SignIn(context.Background(), SignInRequest{Email: "a@b.c"})
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestSignIn_MapsError(t *testing.T) {
	f := &fakeConn{errs: map[string]error{"SignIn": status.Error(codes.PermissionDenied, "no")}}
	_, err := newTestClient(f).SignIn(context.Background(), SignInRequest{Email: "a@b.c"})
	require.ErrorIs(t, err, common.ErrIncorrectPassword)
}

func TestSignUp_SendsResumeToken(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{"SignUp": {"uid": "u2", "sessionToken": "st2"}}}
	sess, err := newTestClient(f).SignUp(context.Background(), SignUpRequest{
		Email:       "a@b.c",
		AuthPW:      "pw",
		ResumeToken: "resume",
	})
	require.NoError(t, err)
	require.Equal(t, "u2", sess.UID)
	require.Equal(t, "resume", f.lastRequest["resume"])
}

func TestSessionStatus_SendsToken(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{"SessionStatus": {"uid": "u1", "email": "a@b.c"}}}
	st, err := newTestClient(f).SessionStatus(context.Background(), "st")
	require.NoError(t, err)
	require.Equal(t, "st", f.lastSessionToken)
	require.Equal(t, &SessionStatus{UID: "u1", Email: "a@b.c"}, st)
}

func TestSessionStatus_InvalidToken(t *testing.T) {
	f := &fakeConn{errs: map[string]error{"SessionStatus": status.Error(codes.Unauthenticated, "gone")}}
	_, err := newTestClient(f).SessionStatus(context.Background(), "st")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRecoveryEmailStatus(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{"RecoveryEmailStatus": {"email": "a@b.c", "verified": true}}}
	st, err := newTestClient(f).RecoveryEmailStatus(context.Background(), "st")
	require.NoError(t, err)
	require.True(t, st.Verified)
	require.Equal(t, "st", f.lastSessionToken)
}

func TestVerifyCode_OptionalFields(t *testing.T) {
	f := &fakeConn{}
	err := newTestClient(f).VerifyCode(context.Background(), "u1", "123456", VerifyCodeOptions{Service: "sync"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"uid": "u1", "code": "123456", "service": "sync"}, f.lastRequest)
}

func TestAccountStatus(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{
		"AccountStatus":        {"exists": true},
		"AccountStatusByEmail": {"exists": false},
	}}
	c := newTestClient(f)

	ok, err := c.AccountStatus(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.AccountStatusByEmail(context.Background(), "a@b.c")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "a@b.c", f.lastRequest["email"])
}

/*************
 * Attached clients
 *************/

func TestAttachedDevices_ParsesList(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{
		"AttachedDevices": {"devices": []any{
			map[string]any{"id": "d1", "name": "Laptop", "type": "desktop", "isCurrentDevice": true, "lastAccessTime": float64(1700000000000)},
			"garbage",
			map[string]any{"id": "d2", "name": "Phone"},
		}},
	}}

	devices, err := newTestClient(f).AttachedDevices(context.Background(), "st")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	require.Equal(t, "d1", devices[0].ID)
	require.True(t, devices[0].IsCurrentDevice)
	require.Equal(t, time.UnixMilli(1700000000000), devices[0].LastAccessTime)
	require.True(t, devices[1].LastAccessTime.IsZero())
}

func TestAttachedOAuthApps_ParsesScope(t *testing.T) {
	f := &fakeConn{responses: map[string]map[string]any{
		"AttachedOAuthApps": {"apps": []any{
			map[string]any{"id": "a1", "name": "Notes", "scope": []any{"profile", "sync"}},
		}},
	}}

	apps, err := newTestClient(f).AttachedOAuthApps(context.Background(), "st")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, []string{"profile", "sync"}, apps[0].Scope)
}

func TestDestroyCalls_SendIDs(t *testing.T) {
	f := &fakeConn{}
	c := newTestClient(f)

	require.NoError(t, c.DeviceDestroy(context.Background(), "st", "d1"))
	require.Equal(t, authService+"DeviceDestroy", f.lastMethod)
	require.Equal(t, "d1", f.lastRequest["id"])

	require.NoError(t, c.OAuthAppDestroy(context.Background(), "st", "a1"))
	require.Equal(t, authService+"OAuthAppDestroy", f.lastMethod)
	require.Equal(t, "a1", f.lastRequest["id"])
	require.Equal(t, "st", f.lastSessionToken)
}

func TestOptIn_UsesMarketingService(t *testing.T) {
	f := &fakeConn{}
	require.NoError(t, newTestClient(f).OptIn(context.Background(), "a@b.c", "st", "firefox-accounts-journey"))
	require.Equal(t, marketingService+"Subscribe", f.lastMethod)
	require.Equal(t, []any{"firefox-accounts-journey"}, f.lastRequest["newsletters"])
}

func TestOptIn_MapsError(t *testing.T) {
	f := &fakeConn{errs: map[string]error{"Subscribe": status.Error(codes.Unavailable, "down")}}
	err := newTestClient(f).OptIn(context.Background(), "a@b.c", "st", "n")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClose_NoConnection(t *testing.T) {
	require.NoError(t, (&GRPCClient{}).Close())
}
