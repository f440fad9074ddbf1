package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

const (
	argOn       = "on"
	argOff      = "off"
	argClear    = "-"
	planCancel  = "cancel"
	planSuspend = "suspend"
)

var (
	errUsage        = errors.New("invalid arguments")
	errUnknownValue = errors.New("unknown value")
)

func (b *Bot) handleAddChannel(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.reply(msg, "Usage: <code>/addchannel &lt;id&gt; [title]</code>")
		return
	}

	channelID, err := parseChannelID(args[0])
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	title := strings.Join(args[1:], " ")
	ch := domain.NewChannelSource(channelID, title)

	if err := b.database.AddChannel(ctx, ch); err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	b.logger.Info().Int64(LogFieldChannelID, channelID).Int64(LogFieldUserID, msg.From.ID).Msg("channel linked")
	b.reply(msg, fmt.Sprintf("✅ Channel <code>%d</code> linked. Add the bot as an admin of the channel to index new posts.", channelID))
}

func (b *Bot) handleListChannels(ctx context.Context, msg *tgbotapi.Message) {
	channels, err := b.database.ListChannels(ctx)
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	if len(channels) == 0 {
		b.reply(msg, "No channels linked. Use <code>/addchannel &lt;id&gt;</code>.")
		return
	}

	var sb strings.Builder

	sb.WriteString("📋 <b>Channels</b>\n\n")

	for i := range channels {
		sb.WriteString(formatChannelLine(&channels[i]))
		sb.WriteString("\n")
	}

	b.reply(msg, sb.String())
}

func formatChannelLine(ch *domain.ChannelSource) string {
	state := "✅"
	if !ch.CanIndex() {
		state = "⏸"
	}

	line := fmt.Sprintf("%s %s <code>%d</code>\n   mode %s · cursor %d · files %d",
		state, formatChannelDisplay(ch.Username, ch.Title, strconv.FormatInt(ch.ID, 10)), ch.ID,
		ch.Mode, ch.LastIndexedMessageID, ch.TotalFiles)

	if ch.IsPremiumOnly {
		line += " · " + markPremium
	}

	if ch.VerificationRequired {
		line += " · " + markVerification
	}

	if ch.ErrorCount > 0 {
		line += fmt.Sprintf("\n   ⚠️ %d errors: %s", ch.ErrorCount, html.EscapeString(ch.LastError))
	}

	return line
}

func (b *Bot) handleChannelSetting(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 3 {
		b.reply(msg, "Usage: <code>/channel &lt;id&gt; &lt;setting&gt; &lt;value&gt;</code>\n"+
			"Settings: mode, min, max, kinds, include, exclude, premium, verify, autodelete, link, enable, status")

		return
	}

	channelID, err := parseChannelID(args[0])
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	ch, err := b.database.FindChannel(ctx, channelID)
	if err != nil {
		b.replyChannelError(msg, err, channelID)
		return
	}

	if err := applyChannelSetting(ch, strings.ToLower(args[1]), strings.Join(args[2:], " ")); err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	if err := b.database.SaveChannelSettings(ctx, ch); err != nil {
		b.replyChannelError(msg, err, channelID)
		return
	}

	b.logger.Info().Int64(LogFieldChannelID, channelID).Str("setting", args[1]).Int64(LogFieldUserID, msg.From.ID).Msg("channel setting changed")
	b.reply(msg, "✅ Updated\n"+formatChannelLine(ch))
}

func (b *Bot) replyChannelError(msg *tgbotapi.Message, err error, channelID int64) {
	if errors.Is(err, errors.ErrNotFound) {
		b.reply(msg, fmt.Sprintf(ErrChannelNotFoundFmt, channelID))
		return
	}

	b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
}

// applyChannelSetting changes one administrative setting of ch.
func applyChannelSetting(ch *domain.ChannelSource, setting, value string) error {
	value = strings.TrimSpace(value)

	var err error

	switch setting {
	case SettingMode:
		err = applyMode(ch, value)
	case SettingMinSize:
		ch.MinFileSize, err = parseSize(value)
	case SettingMaxSize:
		ch.MaxFileSize, err = parseSize(value)
	case SettingKinds:
		ch.AllowedKinds, err = parseKinds(value)
	case SettingInclude:
		ch.IncludeKeywords = parseKeywords(value)
	case SettingExclude:
		ch.ExcludeKeywords = parseKeywords(value)
	case SettingPremium:
		ch.IsPremiumOnly, err = parseOnOff(value)
	case SettingVerify:
		ch.VerificationRequired, err = parseOnOff(value)
	case SettingAutoDelete:
		err = applyAutoDelete(ch, value)
	case SettingLink:
		ch.Linked, err = parseOnOff(value)
	case SettingEnable:
		ch.IndexingEnabled, err = parseOnOff(value)
	case SettingStatus:
		err = applyStatus(ch, value)
	default:
		return fmt.Errorf("%w: unknown setting %q", errUsage, setting)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", setting, err)
	}

	if ch.MaxFileSize > 0 && ch.MinFileSize > ch.MaxFileSize {
		return fmt.Errorf("%w: min size exceeds max size", errUsage)
	}

	return nil
}

func applyMode(ch *domain.ChannelSource, value string) error {
	switch mode := domain.IndexMode(strings.ToLower(value)); mode {
	case domain.IndexAuto, domain.IndexManual, domain.IndexScheduled, domain.IndexDisabled:
		ch.Mode = mode
		return nil
	default:
		return fmt.Errorf("%w %q", errUnknownValue, value)
	}
}

func applyStatus(ch *domain.ChannelSource, value string) error {
	switch status := domain.ChannelStatus(strings.ToLower(value)); status {
	case domain.ChannelActive, domain.ChannelInactive, domain.ChannelBanned, domain.ChannelRestricted, domain.ChannelArchived:
		ch.Status = status
		return nil
	default:
		return fmt.Errorf("%w %q", errUnknownValue, value)
	}
}

// applyAutoDelete accepts "off", a number of seconds or a Go duration.
func applyAutoDelete(ch *domain.ChannelSource, value string) error {
	if strings.EqualFold(value, argOff) {
		ch.AutoDelete = false
		return nil
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		d, derr := time.ParseDuration(value)
		if derr != nil {
			return fmt.Errorf("%w %q", errUnknownValue, value)
		}

		seconds = int(d / time.Second)
	}

	if seconds <= 0 {
		return fmt.Errorf("%w: must be positive", errUnknownValue)
	}

	ch.AutoDelete = true
	ch.AutoDeleteAfter = seconds

	return nil
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(value) {
	case argOn, "true", "yes", "1":
		return true, nil
	case argOff, "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w %q, use on/off", errUnknownValue, value)
	}
}

// parseSize reads a byte count with an optional KB/MB/GB suffix.
func parseSize(value string) (int64, error) {
	v := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	mult := int64(1)

	for _, unit := range []struct {
		suffix string
		mult   int64
	}{{"GB", gib}, {"MB", mib}, {"KB", kib}, {"B", 1}} {
		if trimmed, ok := strings.CutSuffix(v, unit.suffix); ok {
			v, mult = trimmed, unit.mult
			break
		}
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w size %q", errUnknownValue, value)
	}

	return int64(n * float64(mult)), nil
}

func parseKinds(value string) ([]domain.MediaKind, error) {
	kinds := make([]domain.MediaKind, 0, 4)

	for _, part := range strings.Split(value, ",") {
		k := domain.MediaKind(strings.ToLower(strings.TrimSpace(part)))
		if k == "" {
			continue
		}

		if !k.Valid() {
			return nil, fmt.Errorf("%w kind %q", errUnknownValue, part)
		}

		kinds = append(kinds, k)
	}

	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: at least one kind is required", errUsage)
	}

	return kinds, nil
}

// parseKeywords splits a comma list. "-" clears the list.
func parseKeywords(value string) []string {
	if value == argClear {
		return nil
	}

	out := make([]string, 0, 4)

	for _, part := range strings.Split(value, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			out = append(out, kw)
		}
	}

	return out
}

// parseChannelID accepts a bare channel id or a Bot API chat id (-100...).
func parseChannelID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w channel id %q", errUnknownValue, s)
	}

	id = domain.ChannelIDFromChat(id)
	if id <= 0 {
		return 0, fmt.Errorf("%w channel id %q", errUnknownValue, s)
	}

	return id, nil
}

func (b *Bot) handlePremium(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.reply(msg, "Usage: <code>/premium &lt;user&gt; &lt;plan|cancel|suspend&gt; [until]</code>\n"+
			"Plans: basic, standard, premium, vip, lifetime")

		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, "invalid user id"))
		return
	}

	switch strings.ToLower(args[1]) {
	case planCancel:
		b.setPremiumStatus(ctx, msg, userID, domain.PremiumCancelled)
		return
	case planSuspend:
		b.setPremiumStatus(ctx, msg, userID, domain.PremiumSuspended)
		return
	}

	p, err := parsePremiumGrant(userID, args[1], strings.Join(args[2:], " "), b.now())
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	p.GrantedBy = msg.From.ID

	if err := b.database.GrantPremium(ctx, p); err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	b.logger.Info().Int64(LogFieldUserID, userID).Str("plan", string(p.Plan)).Int64("granted_by", msg.From.ID).Msg("premium granted")

	if p.IsLifetime {
		b.reply(msg, fmt.Sprintf("✅ User <code>%d</code> has lifetime premium.", userID))
		return
	}

	b.reply(msg, fmt.Sprintf("✅ User <code>%d</code> has <b>%s</b> until %s.", userID, p.Plan, p.ExpiresAt.UTC().Format(time.DateOnly)))
}

func (b *Bot) setPremiumStatus(ctx context.Context, msg *tgbotapi.Message, userID int64, status domain.PremiumStatus) {
	if err := b.database.SetPremiumStatus(ctx, userID, status); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			b.reply(msg, fmt.Sprintf("User <code>%d</code> has no subscription.", userID))
			return
		}

		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))

		return
	}

	b.reply(msg, fmt.Sprintf("✅ Subscription of <code>%d</code> is now %s.", userID, status))
}

// parsePremiumGrant builds a subscription. until is free-form ("2026-12-31",
// "Dec 31, 2026"); without it the plan runs for defaultPremiumDays.
func parsePremiumGrant(userID int64, plan, until string, now time.Time) (domain.Premium, error) {
	p, ok := domain.ParsePremiumPlan(strings.ToLower(plan))
	if !ok {
		return domain.Premium{}, fmt.Errorf("%w plan %q", errUnknownValue, plan)
	}

	grant := domain.Premium{UserID: userID, Plan: p, Status: domain.PremiumActive}

	if p == domain.PlanLifetime {
		grant.IsLifetime = true
		return grant, nil
	}

	if until == "" {
		grant.ExpiresAt = now.AddDate(0, 0, defaultPremiumDays)
		return grant, nil
	}

	expires, err := dateparse.ParseIn(until, time.UTC)
	if err != nil {
		return domain.Premium{}, fmt.Errorf("%w date %q", errUnknownValue, until)
	}

	if !expires.After(now) {
		return domain.Premium{}, fmt.Errorf("%w: expiry must be in the future", errUsage)
	}

	grant.ExpiresAt = expires

	return grant, nil
}

func (b *Bot) handleVerify(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.reply(msg, "Usage: <code>/verify &lt;user&gt; [off]</code>")
		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, "invalid user id"))
		return
	}

	verified := true
	if len(args) > 1 {
		if verified, err = parseOnOff(args[1]); err != nil {
			b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
			return
		}
	}

	if err := b.database.SetVerified(ctx, userID, verified); err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	if verified {
		b.reply(msg, fmt.Sprintf("✅ User <code>%d</code> is verified.", userID))
		return
	}

	b.reply(msg, fmt.Sprintf("User <code>%d</code> is no longer verified.", userID))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	s, err := b.database.GetStats(ctx)
	if err != nil {
		b.reply(msg, fmt.Sprintf(ErrGenericFmt, html.EscapeString(err.Error())))
		return
	}

	var sb strings.Builder

	sb.WriteString("📊 <b>Stats</b>\n\n")
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Files", s.Items))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Active files", s.ActiveItems))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Channels", s.Channels))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Indexing channels", s.ActiveChannels))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Users", s.Users))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Verified users", s.VerifiedUsers))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Premium users", s.PremiumUsers))
	sb.WriteString(fmt.Sprintf(statsItemFormat, "Downloads", s.Downloads))

	b.reply(msg, sb.String())
}

const statsItemFormat = "• %s: <code>%d</code>\n"
