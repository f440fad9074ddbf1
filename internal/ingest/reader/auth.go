package reader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

// ErrSignupNotSupported is returned when the configured phone has no account.
var ErrSignupNotSupported = errors.New("signup not supported")

const minPhoneLength = 10

// terminalAuth answers the gotd login flow from config, falling back to
// interactive prompts for anything not configured.
type terminalAuth struct {
	r *Reader
}

func (r *Reader) authFlow() auth.Flow {
	return auth.NewFlow(terminalAuth{r: r}, auth.SendCodeOptions{})
}

func prompt(label string) (string, error) {
	fmt.Print(label)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}

	return strings.TrimSpace(line), nil
}

func (a terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return prompt("Enter code: ")
}

func (a terminalAuth) Phone(_ context.Context) (string, error) {
	phone := a.r.cfg.TGPhone
	if phone == "" {
		var err error
		if phone, err = prompt("Enter phone: "); err != nil {
			return "", err
		}
	}

	phone = sanitizePhone(phone)
	a.r.logger.Info().Str("phone", maskPhone(phone)).Msg("Using phone number")

	if len(phone) < minPhoneLength {
		a.r.logger.Warn().Int("length", len(phone)).Msg("Phone number seems too short, include the country code (e.g. +1...)")
	}

	return phone, nil
}

func (a terminalAuth) Password(_ context.Context) (string, error) {
	if a.r.cfg.TG2FAPassword != "" {
		return a.r.cfg.TG2FAPassword, nil
	}

	return prompt("Enter 2FA password: ")
}

func (a terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignupNotSupported
}

// sanitizePhone keeps a leading + and the digits.
func sanitizePhone(phone string) string {
	var sb strings.Builder

	phone = strings.TrimSpace(phone)
	if rest, ok := strings.CutPrefix(phone, "+"); ok {
		sb.WriteByte('+')

		phone = rest
	}

	for _, c := range phone {
		if c >= '0' && c <= '9' {
			sb.WriteRune(c)
		}
	}

	return sb.String()
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-2:]
}
