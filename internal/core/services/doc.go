// Package services implements the driving port interfaces.
//
// The zoom-in search lives here: Oracle wraps the classifier and extractor
// backends, FolderScorer, FileScorer and SectionRetriever run the three
// stages, PointerResolver turns pointers back into content, and
// SearchService sequences them. Services depend only on ports.
package services
