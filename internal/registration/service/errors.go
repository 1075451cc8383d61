package service

import dErrors "cashwallet/pkg/domain-errors"

var errNotFound = dErrors.New(dErrors.CodeNotFound, "registration not found")
