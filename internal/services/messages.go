package services

// Client-facing messages. Clients match on some of these strings, so they
// must not change.
const (
	MsgCourseNotExists         = "El curso no existe"
	MsgCourseNotFound          = "Curso no encontrado"
	MsgCourseNotFoundDot       = "Curso no encontrado."
	MsgUserNotFound            = "Usuario no encontrado"
	MsgInstructorNotFound      = "Instructor no encontrado"
	MsgCatedraticoInvalid      = "Catedrático no encontrado o no válido."
	MsgInstructorCannotEnroll  = "No puedes inscribirte como estudiante en un curso que tú enseñas."
	MsgAlreadyEnrolled         = "Ya estás inscrito en este curso"
	MsgAlreadyInstructor       = "Este instructor ya es el instructor principal de este curso"
	MsgAlreadyCatedratico      = "Este catedrático ya está asignado a este curso."
	MsgInstructorCannotLeave   = "El instructor no puede salir del curso"
	MsgUserNotInCourse         = "El usuario no está asociado a este curso"
	MsgInstructorAssignedMoved = "Instructor asignado y eliminado como estudiante del curso"
	MsgInstructorAssigned      = "Instructor asignado correctamente al curso"
	MsgUserLeftCourse          = "Usuario eliminado del curso correctamente"
	MsgCourseDeleted           = "Curso eliminado con éxito"
	MsgNoPermission            = "No tienes permisos para realizar esta acción"

	MsgEmailTaken         = "Este correo ya está registrado"
	MsgInvalidCode        = "Código de verificación incorrecto o expirado."
	MsgVerifyFirst        = "Por favor, verifica tu cuenta antes de iniciar sesión."
	MsgInvalidCredentials = "Credenciales inválidas"
	MsgNoRolePermission   = "No tienes permisos para cambiar el rol."
	MsgInvalidRole        = "Rol no válido."
	MsgLastAdmin          = "No puedes eliminar al único administrador."
	MsgAdminKeyDenied     = "Acceso denegado. Clave secreta incorrecta."

	MsgRequestNotPending = "La solicitud ya ha sido procesada o no está en estado pendiente."
	MsgRequestExists     = "Ya tienes una solicitud pendiente."
	MsgRequestApproved   = "Tu solicitud ya fue aprobada."
	MsgNoPendingRequests = "No hay solicitudes pendientes."
	MsgRequestNotFound   = "Solicitud no encontrada"

	MsgEventNotFound      = "Evento no encontrado"
	MsgConversationDenied = "No puedes ver esta conversación."
	MsgRecipientNotFound  = "Destinatario no encontrado"
)
