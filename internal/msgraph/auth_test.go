package msgraph

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", TokenFile)

	tok, err := loadToken(path)
	if err != nil || tok != nil {
		t.Fatalf("loadToken on missing file = %v, %v; want nil, nil", tok, err)
	}

	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC),
	}
	if err := saveToken(path, want); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp token file left behind: %v", err)
	}

	got, err := loadToken(path)
	if err != nil {
		t.Fatalf("loadToken: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("loadToken = %+v, want %+v", got, want)
	}
}

func TestLoadToken_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFile)
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadToken(path); err == nil {
		t.Error("expected an error for a corrupt token file")
	}
}

func TestOAuth2Config(t *testing.T) {
	cfg := Auth{TenantID: "contoso", ClientID: "client"}.oauth2Config()
	if cfg.ClientID != "client" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if want := "https://login.microsoftonline.com/contoso/oauth2/v2.0/token"; cfg.Endpoint.TokenURL != want {
		t.Errorf("TokenURL = %q, want %q", cfg.Endpoint.TokenURL, want)
	}
}
