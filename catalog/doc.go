// Package catalog maps caller-facing model keys to routing descriptors:
// which provider serves the key, the concrete upstream model id, request
// defaults, usage caps and the fallback key. Resolution is backed by an
// external configuration authority; unknown or incomplete entries are
// configuration errors and are never silently substituted.
package catalog
