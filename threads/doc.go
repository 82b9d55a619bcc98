// Package threads is a client for the Threads publishing API.
//
// Posts are published in two steps. CreatePost or CreateCarouselPost
// validate the content locally and return a Draft; Draft.Publish then
// creates the media container(s) and publishes them:
//
//	client, err := threads.NewClient(threads.Config{AccessToken: token, UserID: userID})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	draft, err := client.CreatePost(threads.PostOptions{Text: "hello", TopicTag: "golang"})
//	if err != nil {
//		return err
//	}
//	post, err := draft.Publish(ctx)
//
// Container creation is retried on transient failures according to the
// client's RetryPolicy. The publish step is never retried, so a post is
// never published twice.
//
// Failures can be inspected with errors.Is against ErrValidation,
// ErrTransient, ErrPermanent, ErrNotFound and ErrPublishFailed, or with
// errors.As against *RemoteError for the status code and API payload.
package threads
