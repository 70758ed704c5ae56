package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/config"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/dmitrijs2005/webportal/internal/server/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	report *resolver.Report
}

func (f fakeProber) Resolve(context.Context) *resolver.Report { return f.report }

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	i := 0
	readPassword = func(int) ([]byte, error) {
		pw := pws[i%len(pws)]
		i++
		return []byte(pw), nil
	}
}

func newTestApp(t *testing.T, input string) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	var out bytes.Buffer
	app, err := NewApp(context.Background(), cfg, logging.Nop(), strings.NewReader(input), &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, &out
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{name: "bare", args: []string{"list-users"}, wantCmd: "list-users", wantRest: []string{}},
		{name: "after flags", args: []string{"-d", "postgres://x", "set-active", "bob", "false"}, wantCmd: "set-active", wantRest: []string{"bob", "false"}},
		{name: "equals flag", args: []string{"--config=c.yaml", "probe"}, wantCmd: "probe", wantRest: []string{}},
		{name: "none", args: []string{"-d", "x"}, wantCmd: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest := SplitCommand(tt.args)
			assert.Equal(t, tt.wantCmd, cmd)
			if tt.wantCmd != "" {
				assert.Equal(t, tt.wantRest, rest)
			}
		})
	}
}

func TestCreateListAndDisable(t *testing.T) {
	stubPasswords(t, "Secret123!")
	app, out := newTestApp(t, "bob\nBob Stone\nbob@example.com\n")
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{"create-user"}))
	assert.Contains(t, out.String(), "account bob created")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"list-users"}))
	assert.Contains(t, out.String(), "USERNAME")
	assert.Contains(t, out.String(), "bob@example.com")
	assert.Contains(t, out.String(), "never")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"set-active", "bob", "false"}))
	assert.Contains(t, out.String(), "active=false")

	list, err := app.accounts.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)
}

func TestCreateUser_PasswordMismatch(t *testing.T) {
	stubPasswords(t, "Secret123!", "Other123!")
	app, _ := newTestApp(t, "bob\nBob Stone\nbob@example.com\n")

	err := app.Run(context.Background(), []string{"create-user"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCreateUser_Invalid(t *testing.T) {
	stubPasswords(t, "weak")
	app, _ := newTestApp(t, "bob\nBob Stone\nbob@example.com\n")

	err := app.Run(context.Background(), []string{"create-user"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestSetActive_Errors(t *testing.T) {
	app, _ := newTestApp(t, "")
	ctx := context.Background()

	assert.ErrorIs(t, app.Run(ctx, []string{"set-active", "bob"}), ErrUsage)
	assert.ErrorIs(t, app.Run(ctx, []string{"set-active", "bob", "maybe"}), ErrUsage)
	assert.ErrorContains(t, app.Run(ctx, []string{"set-active", "ghost", "true"}), "not found")
}

func TestProbe(t *testing.T) {
	app, out := newTestApp(t, "")
	ctx := context.Background()

	app.resolver = fakeProber{report: &resolver.Report{
		Success:  true,
		Method:   "local",
		Data:     &models.ServerSnapshot{ServerName: "db1"},
		Attempts: []resolver.Attempt{{Method: "local", Success: true}},
	}}
	require.NoError(t, app.Run(ctx, []string{"probe"}))

	var got resolver.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "local", got.Method)
	assert.Equal(t, "db1", got.Data.ServerName)

	app.resolver = fakeProber{report: &resolver.Report{Attempts: []resolver.Attempt{{Method: "a", Error: "refused"}}}}
	assert.Error(t, app.Run(ctx, []string{"probe"}))
}

func TestRun_HelpAndUnknown(t *testing.T) {
	app, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{"help"}))
	assert.Contains(t, out.String(), "create-user")

	assert.ErrorIs(t, app.Run(ctx, nil), ErrUsage)
	assert.ErrorIs(t, app.Run(ctx, []string{"frobnicate"}), ErrUsage)
}
