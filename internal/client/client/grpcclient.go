package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	authService      = "/accountkeeper.auth.v1.AuthService/"
	marketingService = "/accountkeeper.marketing.v1.MarketingService/"
)

type GRPCClient struct {
	endpointURL string
	conn        grpc.ClientConnInterface
	closer      io.Closer
}

func NewGRPCClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.closer = conn
	return nil
}

func (s *GRPCClient) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func withSessionToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.SessionTokenHeaderName)
	md.Set(common.SessionTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// call invokes method with the request fields in and returns the response
// fields. A non-empty sessionToken is attached as metadata.
func (s *GRPCClient) call(ctx context.Context, method, sessionToken string, in map[string]any) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	if sessionToken != "" {
		ctx = withSessionToken(ctx, sessionToken)
	}

	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, s.mapError(err)
	}
	return resp.AsMap(), nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return common.ErrInvalidToken
	case codes.PermissionDenied:
		return common.ErrIncorrectPassword
	case codes.NotFound:
		return common.ErrUnknownAccount
	case codes.AlreadyExists:
		return common.ErrAccountExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidParameter, st.Message())
	case codes.ResourceExhausted:
		return common.ErrThrottled
	case codes.Canceled:
		return common.ErrUserCanceled
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolean(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func millis(m map[string]any, key string) time.Time {
	v, ok := m[key].(float64)
	if !ok || v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(v))
}

func toSession(m map[string]any) (*Session, error) {
	uid := str(m, "uid")
	if uid == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrBadResponse)
	}
	return &Session{
		UID:                uid,
		SessionToken:       str(m, "sessionToken"),
		KeyFetchToken:      str(m, "keyFetchToken"),
		Verified:           boolean(m, "verified"),
		VerificationMethod: str(m, "verificationMethod"),
		VerificationReason: str(m, "verificationReason"),
	}, nil
}

func objects(m map[string]any, key string) []map[string]any {
	list, _ := m[key].([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func (s *GRPCClient) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	in := map[string]any{
		"email":  req.Email,
		"authPW": req.AuthPW,
		"keys":   req.Keys,
	}
	if req.Service != "" {
		in["service"] = req.Service
	}
	if req.Reason != "" {
		in["reason"] = req.Reason
	}
	if req.UnblockCode != "" {
		in["unblockCode"] = req.UnblockCode
	}
	if req.VerificationMethod != "" {
		in["verificationMethod"] = req.VerificationMethod
	}

	resp, err := s.call(ctx, authService+"SignIn", "", in)
	if err != nil {
		return nil, err
	}
	return toSession(resp)
}

func (s *GRPCClient) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	in := map[string]any{
		"email":  req.Email,
		"authPW": req.AuthPW,
		"keys":   req.Keys,
	}
	if req.Service != "" {
		in["service"] = req.Service
	}
	if req.ResumeToken != "" {
		in["resume"] = req.ResumeToken
	}

	resp, err := s.call(ctx, authService+"SignUp", "", in)
	if err != nil {
		return nil, err
	}
	return toSession(resp)
}

func (s *GRPCClient) SignOut(ctx context.Context, sessionToken string) error {
	_, err := s.call(ctx, authService+"SignOut", sessionToken, map[string]any{})
	return err
}

func (s *GRPCClient) SessionStatus(ctx context.Context, sessionToken string) (*SessionStatus, error) {
	resp, err := s.call(ctx, authService+"SessionStatus", sessionToken, map[string]any{})
	if err != nil {
		return nil, err
	}
	return &SessionStatus{UID: str(resp, "uid"), Email: str(resp, "email")}, nil
}

func (s *GRPCClient) RecoveryEmailStatus(ctx context.Context, sessionToken string) (*RecoveryEmailStatus, error) {
	resp, err := s.call(ctx, authService+"RecoveryEmailStatus", sessionToken, map[string]any{})
	if err != nil {
		return nil, err
	}
	return &RecoveryEmailStatus{Email: str(resp, "email"), Verified: boolean(resp, "verified")}, nil
}

func (s *GRPCClient) VerifyCode(ctx context.Context, uid, code string, opts VerifyCodeOptions) error {
	in := map[string]any{"uid": uid, "code": code}
	if opts.Service != "" {
		in["service"] = opts.Service
	}
	if opts.Reminder != "" {
		in["reminder"] = opts.Reminder
	}
	if opts.Type != "" {
		in["type"] = opts.Type
	}
	_, err := s.call(ctx, authService+"VerifyCode", "", in)
	return err
}

func (s *GRPCClient) CompletePasswordReset(ctx context.Context, req PasswordResetRequest) (*Session, error) {
	resp, err := s.call(ctx, authService+"CompletePasswordReset", "", map[string]any{
		"email":  req.Email,
		"authPW": req.AuthPW,
		"token":  req.Token,
		"code":   req.Code,
		"keys":   req.Keys,
	})
	if err != nil {
		return nil, err
	}
	return toSession(resp)
}

func (s *GRPCClient) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*Session, error) {
	in := map[string]any{
		"email":     req.Email,
		"oldAuthPW": req.OldAuthPW,
		"newAuthPW": req.NewAuthPW,
		"keys":      req.Keys,
	}
	if req.SessionTokenContext != "" {
		in["sessionTokenContext"] = req.SessionTokenContext
	}
	resp, err := s.call(ctx, authService+"ChangePassword", req.SessionToken, in)
	if err != nil {
		return nil, err
	}
	return toSession(resp)
}

func (s *GRPCClient) AccountDestroy(ctx context.Context, email, authPW, sessionToken string) error {
	_, err := s.call(ctx, authService+"AccountDestroy", sessionToken, map[string]any{
		"email":  email,
		"authPW": authPW,
	})
	return err
}

func (s *GRPCClient) AccountStatus(ctx context.Context, uid string) (bool, error) {
	resp, err := s.call(ctx, authService+"AccountStatus", "", map[string]any{"uid": uid})
	if err != nil {
		return false, err
	}
	return boolean(resp, "exists"), nil
}

func (s *GRPCClient) AccountStatusByEmail(ctx context.Context, email string) (bool, error) {
	resp, err := s.call(ctx, authService+"AccountStatusByEmail", "", map[string]any{"email": email})
	if err != nil {
		return false, err
	}
	return boolean(resp, "exists"), nil
}

func (s *GRPCClient) AttachedDevices(ctx context.Context, sessionToken string) ([]models.Device, error) {
	resp, err := s.call(ctx, authService+"AttachedDevices", sessionToken, map[string]any{})
	if err != nil {
		return nil, err
	}

	var devices []models.Device
	for _, d := range objects(resp, "devices") {
		devices = append(devices, models.Device{
			ID:              str(d, "id"),
			Name:            str(d, "name"),
			Type:            str(d, "type"),
			IsCurrentDevice: boolean(d, "isCurrentDevice"),
			LastAccessTime:  millis(d, "lastAccessTime"),
		})
	}
	return devices, nil
}

func (s *GRPCClient) DeviceDestroy(ctx context.Context, sessionToken, deviceID string) error {
	_, err := s.call(ctx, authService+"DeviceDestroy", sessionToken, map[string]any{"id": deviceID})
	return err
}

func (s *GRPCClient) AttachedOAuthApps(ctx context.Context, sessionToken string) ([]models.OAuthApp, error) {
	resp, err := s.call(ctx, authService+"AttachedOAuthApps", sessionToken, map[string]any{})
	if err != nil {
		return nil, err
	}

	var apps []models.OAuthApp
	for _, a := range objects(resp, "apps") {
		app := models.OAuthApp{
			ID:             str(a, "id"),
			Name:           str(a, "name"),
			LastAccessTime: millis(a, "lastAccessTime"),
		}
		if scope, ok := a["scope"].([]any); ok {
			for _, sc := range scope {
				if v, ok := sc.(string); ok {
					app.Scope = append(app.Scope, v)
				}
			}
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (s *GRPCClient) OAuthAppDestroy(ctx context.Context, sessionToken, appID string) error {
	_, err := s.call(ctx, authService+"OAuthAppDestroy", sessionToken, map[string]any{"id": appID})
	return err
}

func (s *GRPCClient) RejectUnblockCode(ctx context.Context, uid, code string) error {
	_, err := s.call(ctx, authService+"RejectUnblockCode", "", map[string]any{
		"uid":         uid,
		"unblockCode": code,
	})
	return err
}

// OptIn subscribes email to the newsletter.
func (s *GRPCClient) OptIn(ctx context.Context, email, sessionToken, newsletterID string) error {
	_, err := s.call(ctx, marketingService+"Subscribe", sessionToken, map[string]any{
		"email":       email,
		"newsletters": []any{newsletterID},
	})
	return err
}
