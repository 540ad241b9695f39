package subscription

var ParsePaddleEvent = parsePaddleEvent
