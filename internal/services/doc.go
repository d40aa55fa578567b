// Package services defines the error taxonomy shared by Descant's pipeline
// components. Sentinel errors classify failures for the HTTP layer: not-found
// and validation problems surface as client errors, everything else as a 500
// after the owning project has been flipped to the error status. Captioning
// and synthesis degradation is intentionally NOT an error here; those paths
// resolve to local fallbacks inside the enrichment pipeline.
package services
