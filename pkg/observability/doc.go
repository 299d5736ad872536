/*
Package observability provides tools for monitoring the remote calls issued by
task proxies.

It includes call hooks that log every call, and Prometheus collectors counting
calls and failures and measuring their latency.
*/
package observability
