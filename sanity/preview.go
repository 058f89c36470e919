package sanity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	previewSecretParam   = "sanity-preview-secret"
	previewPathnameParam = "sanity-preview-pathname"

	// PreviewSecretTTL is how long a preview secret minted by the Studio stays valid.
	PreviewSecretTTL = time.Hour

	previewSecretQuery = `*[_type == "sanity.previewUrlSecret" && secret == $secret && dateTime(_updatedAt) > dateTime(now()) - $ttl][0]{_id, _updatedAt, studioUrl}`
)

// PreviewValidation is the outcome of checking a draft-mode request URL.
type PreviewValidation struct {
	Valid      bool
	RedirectTo string
}

// PreviewValidator checks preview URL secrets against the Content Lake.
type PreviewValidator struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// PreviewValidator returns a validator sharing the factory's transport.
func (f *Factory) PreviewValidator() *PreviewValidator {
	return &PreviewValidator{cfg: f.cfg, httpClient: f.httpClient, logger: f.logger}
}

// Validate reads the secret and pathname parameters of rawURL and reports
// whether the secret matches a recent sanity.previewUrlSecret document.
func (v *PreviewValidator) Validate(ctx context.Context, rawURL string) (PreviewValidation, error) {
	invalid := PreviewValidation{RedirectTo: "/"}
	u, err := url.Parse(rawURL)
	if err != nil {
		return invalid, nil
	}
	secret := strings.TrimSpace(u.Query().Get(previewSecretParam))
	redirectTo := SanitizeRedirect(u.Query().Get(previewPathnameParam))
	if secret == "" {
		return invalid, nil
	}
	if err := v.cfg.ValidateToken(); err != nil {
		return invalid, err
	}

	found, err := v.lookupSecret(ctx, secret)
	if err != nil {
		return invalid, err
	}
	if !found {
		v.logger.Info("sanity: preview secret rejected")
		return invalid, nil
	}
	return PreviewValidation{Valid: true, RedirectTo: redirectTo}, nil
}

func (v *PreviewValidator) lookupSecret(ctx context.Context, secret string) (bool, error) {
	encodedSecret, err := json.Marshal(secret)
	if err != nil {
		return false, err
	}
	q := url.Values{}
	q.Set("query", previewSecretQuery)
	q.Set("$secret", string(encodedSecret))
	q.Set("$ttl", strconv.Itoa(int(PreviewSecretTTL.Seconds())))
	q.Set("perspective", "raw")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.QueryURL()+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("sanity: build preview request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("sanity: read preview response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.Redacted(), Body: strings.TrimSpace(string(truncate(body, 512)))}
	}

	var out struct {
		Result *struct {
			ID string `json:"_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, fmt.Errorf("sanity: decode preview response: %w", err)
	}
	return out.Result != nil && out.Result.ID != "", nil
}

// SanitizeRedirect reduces target to a same-origin path, defaulting to "/".
func SanitizeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	out := u.EscapedPath()
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.EscapedFragment()
	}
	return out
}
