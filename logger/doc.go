/*
Package logger provides logging functionality to querykit by defining the required behavior in [Logger]
and providing an implementation of it with [TextLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
[TextLogger] accepts a [LogLevel],
and if initialized with [LogLevelWarn],
only [*TextLogger.Warn], [*TextLogger.Error], and [*TextLogger.Fatal] produce messages.

Log messages emitted by [TextLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2024/04/28 15:55:21 [ERROR] kit/upsert.go:97 'failed upserting rows' log_context: {"data":{"rows":3},"error":"unexpected: Error 1062","table":"products"}

The log context is a JSON-encoded [LogContext].
It carries data inessential to the message proper, such as the table queried.

# SentryLogger

[SentryLogger] wraps a [TextLogger] and additionally ships any error in a [LogContext]
logged at Warn or above to Sentry.
*/
package logger
