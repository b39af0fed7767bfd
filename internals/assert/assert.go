package assert

func Assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}

func AssertNil(value any, msg string) {
	if value != nil {
		panic(msg)
	}
}
