package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"student-wellness/backend/config"
)

// CasdoorProvider 使用 Casdoor 签发的 JWT 校验身份
type CasdoorProvider struct {
	client *casdoorsdk.Client
}

// NewCasdoorProvider 创建 Casdoor 身份提供方
func NewCasdoorProvider(cfg *config.CasdoorConfig) *CasdoorProvider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorProvider{client: client}
}

// Verify 校验令牌签名与有效期
func (p *CasdoorProvider) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return identityFromClaims(claims)
}

// identityFromClaims 未验证的邮箱不参与部门负责人匹配
func identityFromClaims(claims *casdoorsdk.Claims) (*Identity, error) {
	if claims == nil || claims.User.Id == "" {
		return nil, ErrTokenInvalid
	}

	id := &Identity{
		UserID: claims.User.Id,
		Name:   claims.User.DisplayName,
	}
	if claims.User.EmailVerified {
		id.Email = strings.TrimSpace(claims.User.Email)
	}

	id.SessionID = claims.ID
	if id.SessionID == "" {
		id.SessionID = claims.User.Id
		if claims.IssuedAt != nil {
			id.SessionID = fmt.Sprintf("%s:%d", claims.User.Id, claims.IssuedAt.Unix())
		}
	}
	return id, nil
}
