package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Notifier --dir ../domain/reminder --output domain/reminder --outpkg remindermock --filename notifier_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Publisher --dir ../domain/live --output domain/live --outpkg livemock --filename publisher_mock.go
