// Package session owns the client-side session lifecycle for the Go4It
// Sports platform: who is logged in, under which role, and whether an auth
// operation is in flight.
//
// Lifecycle:
//   - Manager is the single writer of session state. It moves through
//     anonymous, checking, and authenticated states, restores provisional
//     sessions from the credential store at startup, and runs the ordered
//     completion path (persist, set state, connect realtime, notify,
//     navigate) on every successful login or registration.
//   - Watchdog timers on login and logout are advisory: they notify and
//     reset the loading flag without cancelling in-flight calls, so a slow
//     success still lands.
//
// Collaborators:
//   - AuthService talks to the platform auth endpoints; HTTPAuthService is
//     the HTTP implementation and the server package hosts the backend it
//     targets. CredentialStore persists the record and token (MemoryStore,
//     FileStore). Notifier, Navigator, Connector, and ActivitySink are
//     optional and default to noops, so headless embedding needs nothing
//     beyond a service and a store.
//
// Activity sinks run best-effort (errors are logged) so audit forwarding
// never blocks authentication.
package session
