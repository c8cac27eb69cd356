package mqttc

// HandlerInterceptor is a function that wraps a MessageHandler.
// It allows cross-cutting concerns like logging, metrics, or tracing
// to be applied to all message processing.
//
// Example (Logging):
//
//	func LoggingInterceptor(next mqttc.MessageHandler) mqttc.MessageHandler {
//	    return func(client *mqttc.Client, msg mqttc.Message) {
//	        log.Printf("Received message on topic %s", msg.Topic)
//	        next(client, msg)
//	    }
//	}
type HandlerInterceptor func(MessageHandler) MessageHandler

// PublishFunc matches the signature of Client.Publish.
type PublishFunc func(topic string, payload []byte, opts ...PublishOption) Token

// PublishInterceptor is a function that wraps a PublishFunc.
// It allows cross-cutting concerns to be applied to all outbound messages.
//
// Example (Tracing):
//
//	func TracingInterceptor(next mqttc.PublishFunc) mqttc.PublishFunc {
//	    return func(topic string, payload []byte, opts ...mqttc.PublishOption) mqttc.Token {
//	        // Inject tracing headers into opts or log the publish
//	        return next(topic, payload, opts...)
//	    }
//	}
type PublishInterceptor func(PublishFunc) PublishFunc

// applyHandlerInterceptors wraps a MessageHandler with multiple interceptors.
func applyHandlerInterceptors(handler MessageHandler, interceptors []HandlerInterceptor) MessageHandler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		handler = interceptors[i](handler)
	}
	return handler
}

// applyPublishInterceptors wraps a PublishFunc with multiple interceptors.
func applyPublishInterceptors(publish PublishFunc, interceptors []PublishInterceptor) PublishFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		publish = interceptors[i](publish)
	}
	return publish
}

// wrapHandler applies the client's configured HandlerInterceptors to h,
// outermost interceptor first. Called on every message dispatch so
// interceptors registered via WithHandlerInterceptor see subscription
// handlers and the default publish handler alike.
func (c *Client) wrapHandler(h MessageHandler) MessageHandler {
	if c.opts == nil || len(c.opts.HandlerInterceptors) == 0 {
		return h
	}
	return applyHandlerInterceptors(h, c.opts.HandlerInterceptors)
}
