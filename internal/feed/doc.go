// Package feed is the built-in full-text feed generator.
//
// It reads the source RSS feed, scrapes every linked article for its body
// paragraphs, repairs mis-decoded punctuation, and renders a new RSS 2.0
// document whose items carry the article HTML as content:encoded.
package feed
