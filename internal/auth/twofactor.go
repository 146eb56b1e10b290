package auth

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/pquerna/otp/totp"
)

const backupCodeCount = 5

// EnrollTwoFactor generates a fresh TOTP secret and a set of one-time
// backup codes, grounded on Player.generate_two_factor_secret /
// generate_backup_codes in the original authentication app. The
// caller stores the returned secret/codes right away; 2FA enforcement
// is only turned on after the user proves possession via VerifyTOTP.
func EnrollTwoFactor(issuer, accountName string) (secret string, backupCodes []string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", nil, err
	}
	codes := make([]string, backupCodeCount)
	for i := range codes {
		codes[i], err = generateBackupCode()
		if err != nil {
			return "", nil, err
		}
	}
	return key.Secret(), codes, nil
}

func generateBackupCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, 8)
	for i, v := range b {
		out[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(out), nil
}

// VerifyTOTP checks a 6-digit code against the enrolled secret.
func VerifyTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}

// MarshalBackupCodes/UnmarshalBackupCodes store the code list as a
// JSON array in Player.BackupCodes, matching the original's JSONField.
func MarshalBackupCodes(codes []string) (string, error) {
	b, err := json.Marshal(codes)
	return string(b), err
}

func UnmarshalBackupCodes(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, fmt.Errorf("decode backup codes: %w", err)
	}
	return codes, nil
}

// UseBackupCode removes a matching code from the list and reports
// whether it was found, mirroring Player.use_backup_code's
// consume-on-success semantics.
func UseBackupCode(codes []string, code string) (remaining []string, ok bool) {
	for i, c := range codes {
		if c == code {
			remaining = append(append([]string{}, codes[:i]...), codes[i+1:]...)
			return remaining, true
		}
	}
	return codes, false
}
