// Package textutil provides filename helpers for rendered clips.
package textutil
