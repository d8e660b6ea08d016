package kafka

import "time"

const (
	TopicResolveRequest = "pricing.resolve.req"
	TopicQuoteRequest   = "pricing.quote.req"
	TopicCouponRequest  = "pricing.coupon.req"
	TopicResolveRetry   = "pricing.resolve.retry"
	TopicQuoteRetry     = "pricing.quote.retry"
	TopicCouponRetry    = "pricing.coupon.retry"
	TopicReplyPrefix    = "pricing.reply."
	TopicRequestSuffix  = ".req"
	TopicRetrySuffix    = ".retry"
	TopicDLQSuffix      = ".dlq"

	RequestTimeout = 3 * time.Second

	RetryHeaderNextAt = "x-next-at"
	ErrorHeaderKey    = "x-error"
)
