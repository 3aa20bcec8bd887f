// Package instrument parses the textual export format produced by lab
// instruments: an optional key/value summary block delimited by
// "--Summary--" (or "--Test Summary--") and "--Data--" markers, followed by
// an optional tab-delimited data table.
//
// The package also derives the categorical output path for structured
// exports from three summary parameters: density, compressive strength
// description, and cement class.
package instrument
