// Package intake validates recordings before they are uploaded.
//
// The rules are deliberately narrow: the extension must be one of
// mp3, wav, m4a, webm, ogg or flac (case-insensitive) and the file must not
// exceed 25 MiB. Nothing about the audio content is inspected. File wraps a
// recording from disk, a browser form or memory behind a single Open method.
package intake
