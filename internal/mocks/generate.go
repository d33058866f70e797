package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name FixtureProvider --dir ../domain/match --output domain/match --outpkg matchmock --filename fixture_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Generator --dir ../domain/content --output domain/content --outpkg contentmock --filename generator_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Sender --dir ../domain/content --output domain/content --outpkg contentmock --filename sender_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Provider --dir ../domain/settings --output domain/settings --outpkg settingsmock --filename provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/delivery --output domain/delivery --outpkg deliverymock --filename repository_mock.go
