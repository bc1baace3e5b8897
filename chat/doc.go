// Package chat holds the live chat buffer and the Twitch IRC listener that fills it.
//
// It provides two pieces:
//   - Buffer: an ordered, mutex-guarded list of "author: text" lines. The
//     listener is the main writer; the summarize and finalize workflows read,
//     drain and clear it.
//   - StartListener: connects to Twitch IRC for the configured channel and
//     appends every accepted message to the Buffer. Messages from the bot
//     account itself and from excluded authors are dropped before Append.
//
// Credentials: with a bot username and an OAuth token (chat:read scope) the
// listener logs in as that user. Without a token it joins anonymously, which
// is enough to read chat.
package chat
