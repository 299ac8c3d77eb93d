// Package extract reads posts and the next-page marker out of listing HTML.
//
// Selectors are plain CSS, compiled once with cascadia and matched with
// goquery. Empty titles and links are replaced by models.Sentinel.
package extract
