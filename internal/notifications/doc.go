// Package notifications delivers pipeline progress updates through ntfy.
package notifications
