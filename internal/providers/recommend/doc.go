/*
Package recommend asks an Azure OpenAI chat deployment for book recommendations.

Three kinds of request are supported:

  - to-read: pick the next book from the user's to-read list
  - based-on-history: suggest new books from rated reading history
  - custom: answer a free-text request

The model is asked for a JSON array. Replies that are not valid JSON are
parsed heuristically ("Title by Author - reason"). When the deployment is not
configured, fails, or returns nothing usable, a fixed list for the request
kind is returned instead, so Get only fails on invalid requests.

Calls go through the shared HTTP client with a retrying transport and a
circuit breaker. Successful answers are cached per request.
*/
package recommend
