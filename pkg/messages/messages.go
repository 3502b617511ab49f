package messages

const (
	// ErrUserErrorProcessing is shown when a command fails for a reason the user cannot fix.
	ErrUserErrorProcessing = "There was an error processing your request. Please try again later."

	// ErrUserNotConfigured points the user at the setup commands.
	ErrUserNotConfigured = "No configuration found for this server. Use `/help config` for more information."

	// ErrUserPermissionDenied is shown when the caller is neither the server owner nor an admin.
	ErrUserPermissionDenied = "You don't have permissions to do that."

	// ErrUserConfigureLogChannel asks the user to set a log channel so diagnostics can be delivered.
	ErrUserConfigureLogChannel = "Log channel not found, please set it using `/config set log_channel`."

	// ErrUserOwnerOnly is shown when a non owner uses an owner only command.
	ErrUserOwnerOnly = "Only the bot owner can use this command."
)

const (
	// TitleError is the title of error embeds.
	TitleError = "Error"

	// TitleSuccess is the title of success embeds.
	TitleSuccess = "Success"

	// TitleInfo is the title of informational embeds.
	TitleInfo = "Info"
)

const (
	// ConfirmYes is the label of the confirmation button.
	ConfirmYes = "Yes"

	// ConfirmNo is the label of the decline button.
	ConfirmNo = "No"
)

const (
	// ColorSuccess is green.
	ColorSuccess = 0x2ecc71

	// ColorError is red.
	ColorError = 0xe74c3c

	// ColorWarning is yellow.
	ColorWarning = 0xffff64

	// ColorInfo is light blue.
	ColorInfo = 0x6496ff

	// ColorTicket is teal.
	ColorTicket = 0x1abc9c
)
