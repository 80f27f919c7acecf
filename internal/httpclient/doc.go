// Package httpclient builds and sends the requests errgen fires at a
// fault-injection endpoint.
//
// [NewRequestBuilder] fixes the endpoint once from the configured base URL;
// [RequestBuilder.Build] attaches one draw of fault parameters as query
// parameters:
//
//	builder, err := httpclient.NewRequestBuilder(cfg)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx, generator.Next())
//
// [NewClient] returns the single client shared by every request of a run. Its
// transport pools connections so that a full batch can reuse them:
//
//	client := httpclient.NewClient(30 * time.Second)
//	resp, err := client.Do(req)
//
// Response bodies are drained with [DrainBody]; [ResponseMessage] pulls the
// JSON "message" field out of error responses for diagnostics.
package httpclient
