/*
Package pageserverclient is the HTTP transport the Reconciler worker uses
to converge a page server's actual location configuration toward intent.

Requests are built the way pkg/health.HTTPChecker builds its probes: a
context-scoped request against a plain *http.Client with a bounded
timeout. No retries happen here - a single failed RPC fails the reconcile
attempt outright, and the core's supersession model is what drives the
next attempt, not client-side retry logic.

Every request carries a fresh X-Request-Id, generated with
github.com/google/uuid, so a page server's logs can be correlated back to
a single reconcile attempt.
*/
package pageserverclient
