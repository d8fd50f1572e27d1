// Package git provides the version-control operations the release
// publisher needs: listing tags, querying working-tree status, creating
// a tag, and pushing commits and tags.
//
// All Git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Uses the exact same Git behavior, credentials and remote
//     configuration the user sees in their terminal
//   - Leaves network transport and authentication entirely to git
//
// Every call is bounded by a timeout: a short one for local queries and
// tag creation, a longer one for pushes that talk to the remote.
package git
