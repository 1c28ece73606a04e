// Package scrape downloads slideshow images and captions from news stories and
// writes each caption as a file-description page ready for bulk upload.
//
// Stories are walked slide by slide until a slide page answers with anything
// other than 200. Requests are paced with retry.Pacer: one wait after every
// slide and a longer one after every story.
package scrape
