// Package http serves the calendar REST API.
//
// Every route except GET /healthz requires `Authorization: Bearer <token>`;
// the token names the calling member and company. Bodies are JSON with
// camelCase keys.
//
//   - POST /appointments, GET /appointments?from=&to=&participantId=
//   - PATCH /appointments/{id}, DELETE /appointments/{id}
//   - POST|DELETE /appointments/{id}/participants/{userId}
//   - POST /appointment-invites
//   - GET /appointment-invites/my-invites, GET /appointment-invites/pending
//   - PATCH /appointment-invites/{id}/respond, DELETE /appointment-invites/{id}
//   - GET /members
//
// Failures are rendered as {"message","errorCode","errors"}. Permission
// denials carry the missing scope in the message, for example
// "forbidden: missing scope calendar:update"; no other message contains a
// colon.
package http
