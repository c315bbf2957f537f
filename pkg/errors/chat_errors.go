package errors

var (
	// Domain errors — used in services/repositories
	ErrOfferNotFound        = NotFound("Offer not found")
	ErrClientNotFound       = NotFound("Client not found")
	ErrSenderNotFound       = NotFound("Sender not found")
	ErrConversationNotFound = NotFound("Conversation not found")
	ErrMessageNotFound      = NotFound("Message not found")
	ErrSelfConversation     = InvalidArg("Cannot create conversation with yourself")
	ErrNotParticipant       = Unauthorized("User is not a participant of this conversation")
	ErrOwnerOnly            = Unauthorized("Only the offer owner can perform this action")
	ErrSenderOnly           = Unauthorized("Only the sender can delete their own messages")
	ErrOwnMessageRead       = Unauthorized("Cannot mark own message as read")
	ErrEmptyContent         = InvalidArg("Message content cannot be empty")
	ErrContentTooLong       = InvalidArg("Message content too long (max 1000 characters)")
	ErrInvalidMessageType   = InvalidArg("Invalid message type")
	ErrConversationClosed   = FailedPrecondition("Conversation is closed")
)
