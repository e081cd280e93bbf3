// Package session holds the signed-in identity every vidash component reads.
//
// A Session is constructed explicitly by Login or Restore and passed to the
// components that need it; nothing reads ambient globals. The role list is
// resolved once into a Capability (Admin or Viewer) so dashboards can declare
// what they accept. Tokens are issued and validated server-side; the client
// only decodes access-token claims without verification to learn expiry.
package session
