package bot

const (
	textStart = `Hello! I can help you create and manage sticker packs.

/create - create a new pack
/add - add stickers to one of your packs
/readd - register a pack you created with another bot
/tofile - get the file of a sticker
/toemoji - turn a static sticker into a custom emoji image
/cancel - stop the current operation`

	textUnknownCommand   = "Unknown command 🤔 Use /help to see what I can do"
	textCancel           = "Okay, operation cancelled"
	textCancelNothing    = "There's nothing to cancel"
	textTimeout          = "Looks like you went away, the current operation has been cancelled"
	textGenericError     = "An error occurred while processing your request, please try again"
	textPackDataMissing  = "Something went wrong and I lost track of your pack, please start again"
	textPackTypeExpired  = "These buttons are no longer valid"
	textPackTypeChanged  = "Pack type set to: %s"
	textInvalidMessage   = "I wasn't expecting this kind of message. Use /cancel to stop"
	textWaitingTitleText = "Please send me the <b>title</b> of the pack as a text message, or /cancel"
	textWaitingNameText  = "Please send me the <b>link name</b> of the pack as a text message, or /cancel"

	// create
	textCreateWaitingTitle = `Let's create a new pack! Send me its <b>title</b>.
Use the buttons below to choose the type of stickers it will contain.`
	textTitleTooLong = "The title is too long, it must be 64 characters or less. Send me another one"
	textTitleNewline = "The title can't span multiple lines. Send me another one"
	textCreateWaitingName = `Good, the title will be "%s".
Now send me the name to use in the link of the pack (max %d characters, letters, numbers and underscores).`
	textNameTooLong   = "The name is too long (%d/%d characters). Send me another one"
	textNameInvalid   = "The name must start with a letter and can only contain letters, numbers and single underscores. Send me another one"
	textNameDuplicate = "You already have a pack with this name. Send me another one"
	textCreateWaitingFirstSticker = `Now send me the first %s sticker of the pack.
You can send me the emojis to use for it before sending the sticker.`
	textCreateNameOccupied = `Looks like %s is already taken, send me another name`
	textCreateNameRejected = "The name was refused, please send me another one"
	textCreateGenericError = "Pack creation failed: <code>%s</code>"
	textCreateSuccess = `Pack created! You can find it here: %s
Keep sending stickers to add them, or use /done when you're finished`

	// add
	textAddNoPacks          = "You don't have any pack yet. Use /create to create one"
	textAddSelectPack       = "Select the pack you want to add stickers to"
	textAddPackNotFound     = "I couldn't find a pack named %s among your packs"
	textAddTitleNotFound    = "You don't have any pack titled \"%s\", select one from the keyboard"
	textAddTitleMultiple    = "You have more than one pack titled \"%s\":\n• %s\n\nSelect one by its name"
	textAddNameNotFound     = "You don't have a pack with this name, select one from the keyboard"
	textAddPackSelected     = "Pack selected: %s\nSend me the %s stickers to add. Use /done when you're finished"
	textAddNoEmoji          = "I couldn't find any emoji in your message. Send me at least one emoji"
	textAddTooManyEmojis    = "Too many emojis, a sticker can have at most 10"
	textAddEmojisSaved      = "Got it, %d emojis saved for the next sticker: %s"
	textAddWrongType        = "This pack accepts %s stickers, but you sent a %s one"
	textAddPackFull         = "Pack %s is full: a pack can contain at most %d stickers. Operation ended"
	textAddSizeError        = "The file has invalid dimensions, it couldn't be added"
	textAddInvalidAnimated  = "The file is not a valid animated/video sticker"
	textAddInvalidEmojis    = "The emojis of this sticker were refused, send me different ones"
	textAddFileTooBig       = "The file is too big to be added"
	textAddPackInvalid      = "The pack %s doesn't exist anymore, it has been removed from your list. Select another pack"
	textAddPackInvalidEnded = "The pack %s doesn't exist anymore, it has been removed from your list. You don't have other packs"
	textAddFlood            = "Slow down! Too many stickers were added recently, retry in %s"
	textAddGenericError     = "Couldn't add the sticker to %s: <code>%s</code>\nOperation ended"
	textAddSuccess          = "Sticker added to %s with emojis %s"
	textAddInvalidMessage   = "Send me a sticker, a PNG file or a WEBM video. Use /done when you're finished"

	// readd
	textReaddWaiting         = "Send me a static sticker from the pack you want to register, or its link"
	textReaddPattern         = "This doesn't look like a valid pack link"
	textReaddWrongSuffix     = "I can only register packs created by me, their name ends with <code>%s</code> (%s)"
	textReaddExists          = "%s is already in your packs list"
	textReaddNoPack          = "This sticker doesn't belong to any pack"
	textReaddAnimated        = "Please send me a static sticker from the pack"
	textReaddUnexpected      = "Send me a static sticker from the pack or its link. Use /cancel to stop"
	textReaddPackInvalid     = "The pack %s doesn't exist or doesn't belong to you"
	textReaddAPIError        = "Couldn't check %s: <code>%s</code>"
	textReaddSaved           = "Pack %s has been added to your list!"
	textReaddNotRemoved      = "I couldn't remove the placeholder sticker added to the pack, please remove it manually"
	textReaddNotRemovedError = "I couldn't remove the placeholder sticker (<code>%s</code>), please remove it manually"

	// tofile
	textToFileWaiting       = "Send me the stickers or custom emojis you want the file of. Use /done when you're finished"
	textToFileFlags         = "Enabled flags: %s"
	textToFileMimeType      = "mime type: %s"
	textToFileSentAsSticker = "The file has been sent back as a sticker"
	textToFileTooManyEmoji  = "Send me one custom emoji at a time"
	textToFileNoEmoji       = "I couldn't find this custom emoji"
	textToFileUnexpected    = "Send me a sticker or a custom emoji. Use /done when you're finished"

	// toemoji
	textToEmojiWaiting    = "Send me the static stickers to convert into 100x100 custom emoji images. Use /done when you're finished"
	textToEmojiUnexpected = "Send me a static sticker. Use /done when you're finished"
)
