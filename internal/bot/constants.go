package bot

import "time"

// Message size and delay constants.
const (
	// MaxMessageSize is the maximum size for a single Telegram message part.
	MaxMessageSize = 4000
	// SleepBetweenParts is the delay between sending message parts to avoid rate limits.
	SleepBetweenParts = 500 * time.Millisecond

	maxButtonTitle     = 48
	maxCallbackData    = 64
	inlinePageSize     = 20
	inlineCacheSeconds = 0
	indexRetryDelay    = 500 * time.Millisecond
	updateTimeout      = 60
	defaultPremiumDays = 30
)

// Callback data prefixes.
const (
	CallbackPrefixGet  = "get:"
	CallbackPrefixMore = "more:"

	startPayloadGet = "get_"
	rateScopeInline = "inline"
)

// Command names.
const (
	CmdStart      = "start"
	CmdHelp       = "help"
	CmdSearch     = "search"
	CmdAddChannel = "addchannel"
	CmdChannels   = "channels"
	CmdChannel    = "channel"
	CmdPremium    = "premium"
	CmdVerify     = "verify"
	CmdStats      = "stats"
)

// Channel setting names accepted by /channel.
const (
	SettingMode       = "mode"
	SettingMinSize    = "min"
	SettingMaxSize    = "max"
	SettingKinds      = "kinds"
	SettingInclude    = "include"
	SettingExclude    = "exclude"
	SettingPremium    = "premium"
	SettingVerify     = "verify"
	SettingAutoDelete = "autodelete"
	SettingLink       = "link"
	SettingEnable     = "enable"
	SettingStatus     = "status"
)

// Log field names.
const (
	LogFieldUserID    = "user_id"
	LogFieldUsername  = "username"
	LogFieldChannelID = "channel_id"
	LogFieldItemID    = "item_id"
	LogFieldMessageID = "message_id"
)

// Result marks.
const (
	markPremium      = "🔒"
	markVerification = "🔐"
	buttonMore       = "More results ▶"
)

// Delivery outcomes, used as metric labels.
const (
	deliveryDelivered            = "delivered"
	deliveryNotFound             = "not_found"
	deliveryPremiumRequired      = "premium_required"
	deliveryVerificationRequired = "verification_required"
	deliveryFailed               = "failed"
)

// User-facing messages.
const (
	msgSearchUsage          = "Usage: <code>/search &lt;title&gt;</code>"
	msgSearchUnavailable    = "⚠️ Search is temporarily unavailable. Please try again in a moment."
	msgSearchDisabled       = "Search in private chat is disabled."
	msgInvalidQuery         = "That query can't be searched."
	msgNoResults            = "No files found for <b>%s</b>."
	msgFileGone             = "This file is no longer available."
	msgPremiumRequired      = "🔒 This file requires an active premium subscription."
	msgVerificationRequired = "🔐 This file requires a verified account. Contact an admin to get verified."
	msgDeliveryFailed       = "Could not send the file. Please try again later."
	msgSending              = "Sending…"
	msgRateLimited          = "Too many requests, slow down a little."
	msgUnknownCommand       = "Unknown command"
	msgNotAdmin             = "This command is for admins only."

	ErrGenericFmt         = "❌ Error: %s"
	ErrChannelNotFoundFmt = "Channel <code>%d</code> not found."
)
